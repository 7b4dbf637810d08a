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


package embedding

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/poiesic/evidence/ai"
)

// schedule is a backoff.BackOff that waits 2^attempt seconds after an
// ordinary failure and the provider's Retry-After after a rate limit.
// The operation records its error in last before returning it.
type schedule struct {
	exp  *backoff.ExponentialBackOff
	last error
}

func newSchedule() *schedule {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = time.Second
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = time.Hour
	exp.MaxElapsedTime = 0
	exp.Reset()
	return &schedule{exp: exp}
}

// NextBackOff advances the exponential schedule on every failure so that
// a rate limit still counts as an attempt.
func (s *schedule) NextBackOff() time.Duration {
	next := s.exp.NextBackOff()
	var rle *ai.RateLimitError
	if errors.As(s.last, &rle) {
		return rle.Wait()
	}
	return next
}

func (s *schedule) Reset() {
	s.exp.Reset()
	s.last = nil
}
