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

package config

import (
	"testing"

	"github.com/tideland/golib/logger"
)

// effectiveLevel applies the same arithmetic ParseConfigOptions uses to turn
// a DebugLevel offset into a logger level.
func effectiveLevel(dlev int) logger.LogLevel {
	lev := int(logger.LevelWarning) - dlev
	if lev < int(logger.LevelDebug) {
		lev = int(logger.LevelDebug)
	}
	return logger.LogLevel(lev)
}

func TestDebugLevelFromName(t *testing.T) {
	expected := map[string]logger.LogLevel{
		"debug":    logger.LevelDebug,
		"info":     logger.LevelInfo,
		"warning":  logger.LevelWarning,
		"error":    logger.LevelError,
		"critical": logger.LevelCritical,
	}
	for name, want := range expected {
		if got := effectiveLevel(debugLevelFromName(name)); got != want {
			t.Errorf("log-level %q yields effective level %d, want %d", name, got, want)
		}
	}
}

func TestDebugLevelFromNameUnknown(t *testing.T) {
	if got := effectiveLevel(debugLevelFromName("chatty")); got != logger.LevelWarning {
		t.Errorf("an unknown log-level name should fall back to warning, got %d", got)
	}
}

func TestVerboseFlagLevels(t *testing.T) {
	// -V counts map straight onto the offset, floored at debug.
	if got := effectiveLevel(1); got != logger.LevelInfo {
		t.Errorf("one -V should yield info, got %d", got)
	}
	if got := effectiveLevel(2); got != logger.LevelDebug {
		t.Errorf("two -V should yield debug, got %d", got)
	}
	if got := effectiveLevel(4); got != logger.LevelDebug {
		t.Errorf("the verbosity floor should hold at debug, got %d", got)
	}
}
