// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"time"
)

// DefaultRetryAfter is used when a provider signals a rate limit without saying how long to wait.
const DefaultRetryAfter = 5 * time.Second

// ErrRateLimited is matched by errors.Is for every *RateLimitError.
var ErrRateLimited = errors.New("rate limited")

// RateLimitError reports that the provider rejected a request with HTTP 429.
// RetryAfter is zero when the provider gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Wait returns how long to back off before retrying.
func (e *RateLimitError) Wait() time.Duration {
	if e.RetryAfter <= 0 {
		return DefaultRetryAfter
	}
	return e.RetryAfter
}

// AsRateLimit reports whether err is, or wraps, a *RateLimitError.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}
