/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import "github.com/charmbracelet/lipgloss"

// CmdConfig holds parsed command-line configuration.
type CmdConfig struct {
	Help       bool
	SubCmd     string
	Action     string
	ConfigFile string
	Device     DeviceFlags
	LoadNext   bool
	ClearLogs  bool
	Limit      int
	Args       []string
}

// DeviceFlags are the settings accepted by "device set".
type DeviceFlags struct {
	Type        string
	BaseURL     string
	Token       string
	MacID       string
	RefreshRate int64
	Master      string
}

// logStyles defines styles for command output.
type logStyles struct {
	title, label, value, muted, success, warning, error, box lipgloss.Style
}
