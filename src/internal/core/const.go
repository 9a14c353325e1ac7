// FILE: src/internal/core/const.go
package core

import "time"

// ConsoleLoggerName is the reserved sentinel under which the console
// destination is registered. Console entries must not declare a name of
// their own; the registry owns this one.
const ConsoleLoggerName = "console"

// DataDirEnv names the environment variable establishing the default log
// root. Non-absolute values are ignored.
const DataDirEnv = "LOGROUTE_DATA_DIR"

const (
	// MinRotationInterval is the smallest accepted automatic rotation
	// interval. Zero disables rotation entirely.
	MinRotationInterval = 60 * time.Second

	// RotationCooldown rate-limits on-demand rotation requests.
	RotationCooldown = 15 * time.Second

	// Buffer size bounds, in megabytes.
	MinBufferSizeMB     = 1
	MaxBufferSizeMB     = 1024
	DefaultBufferSizeMB = 4
)

// Argon2id parameters for admin token hashing.
const (
	Argon2Time    = 3
	Argon2Memory  = 64 * 1024 // 64 MB
	Argon2Threads = 4
	Argon2SaltLen = 16
	Argon2KeyLen  = 32
)

const DefaultTokenLength = 32
