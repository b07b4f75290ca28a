/*
 * Copyright (c) 2024-2026, Casey Morbern (<casey@maitred.dev>)
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

package authz

import (
	"time"

	"github.com/cmorbern/maitred/config"
	"github.com/raintank/met"
)

var checkTimings met.Timer
var allowCount met.Count
var denyCount met.Count

func InitializeMetrics(metricsBackend met.Backend) {
	checkTimings = metricsBackend.NewTimer("authz.check", 0)
	allowCount = metricsBackend.NewCount("authz.allow")
	denyCount = metricsBackend.NewCount("authz.deny")
}

func trackCheck(start time.Time, allowed bool) {
	if !config.Config.UseStatsd {
		return
	}
	checkTimings.Value(time.Since(start))
	if allowed {
		allowCount.Inc(1)
	} else {
		denyCount.Inc(1)
	}
}
