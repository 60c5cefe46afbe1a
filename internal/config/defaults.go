package config

const (
	defaultSourceDir          = "~/media/incoming"
	defaultLibraryDir         = "~/media/library"
	defaultLogDir             = "~/.local/share/medio/logs"
	defaultFormat             = "%Y/%m/%Y%m%d_%H%M%S%-c.%e"
	defaultWorkers            = 4
	defaultMaxCounterAttempts = 10000
	defaultCachePath          = "~/.local/share/medio/index.db"
	defaultWatchPollInterval  = 5
	defaultWatchSettleSeconds = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// defaultExtensions lists the media extensions organized by default.
var defaultExtensions = []string{
	"jpg", "jpeg", "mpg", "mp4", "png",
	"mov", "thm", "avi", "raw", "arw",
	"heic", "heif", "nef", "3gp",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir:  defaultSourceDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Organize: Organize{
			Format:             defaultFormat,
			DeleteDuplicates:   true,
			Extensions:         append([]string(nil), defaultExtensions...),
			Workers:            defaultWorkers,
			MaxCounterAttempts: defaultMaxCounterAttempts,
		},
		Index: Index{
			Preseed:      true,
			CacheEnabled: true,
			CachePath:    defaultCachePath,
		},
		Watch: Watch{
			PollInterval:  defaultWatchPollInterval,
			SettleSeconds: defaultWatchSettleSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
