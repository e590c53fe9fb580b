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

package display

import (
	"errors"
	"fmt"
)

var (
	errInvalidRefreshRate = errors.New("invalid refresh_rate")
	errMissingBaseURL     = errors.New("api base url is not configured")
	errMissingToken       = errors.New("api access token is not configured")
	errDecodeResponse     = errors.New("failed to decode response")
)

// SetupRequiredMessage is reported when the remote service has not provisioned the device yet.
const SetupRequiredMessage = "Device setup required"

// APIError is a well-formed response whose status field reports a failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("status %d", e.Status)
}

// HTTPError is a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// NetworkError wraps failures to reach the server at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// describeError renders err with the prefix of its failure category. Text
// supplied by the remote service on an API-level failure is used verbatim.
func describeError(err error) string {
	var (
		apiErr  *APIError
		httpErr *HTTPError
		netErr  *NetworkError
	)

	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}

		return "API Error: " + apiErr.Error()
	case errors.As(err, &httpErr):
		return "HTTP Error: " + httpErr.Error()
	case errors.As(err, &netErr):
		return "Network Error: " + netErr.Error()
	default:
		return "Unknown Error: " + err.Error()
	}
}
