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

import (
	"fmt"
	"io"
)

// ShowHelp writes the usage message.
func ShowHelp(w io.Writer) {
	fmt.Fprint(w, `inkmirror: mirror an e-ink display on this machine
Usage:
  inkmirror <command> [options]

Commands:
  run              Run the mirror daemon (status API, scheduled refreshes)
  device set       Save the device registration, replacing any existing one
  device show      Show the stored device registration
  device clear     Remove the device registration and the cached image
  refresh          Fetch an image once and print the outcome
  logs             Show the refresh history
  version          Print the version

Common options:
  -config string      path to inkmirror.json (default "/etc/inkmirror/inkmirror.json")

Options for device set:
  -type string        device type: trmnl, byod or byos
  -url string         API base URL, e.g. https://trmnl.app/api
  -token string       device access token
  -mac string         device MAC address sent as the ID header
  -rate int           refresh rate in seconds (default: chosen by the server)
  -master string      for byod devices, whether this device drives the playlist (true|false)

Options for refresh:
  -next               advance the playlist instead of showing the current screen

Options for logs:
  -n int              only show the newest n entries
  -clear              delete the refresh history

Configuration can also come from the environment: set CONFIG_SOURCE=env and
use INKMIRROR_ prefixed variables, e.g. INKMIRROR_KV_BACKEND=nats.

Examples:
  inkmirror device set -type byos -url http://byos.local/api -token abc123
  inkmirror refresh -next
  inkmirror logs -n 10
  inkmirror run -config ./inkmirror.json
`)
}
