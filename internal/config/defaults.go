package config

const (
	defaultConfigPath           = "~/.config/benchmgr/config.toml"
	defaultStateDir             = "~/.local/share/benchmgr"
	defaultLogDir               = "~/.local/share/benchmgr/logs"
	defaultAlertDefinitions     = "~/.config/benchmgr/alert_definitions.toml"
	defaultReportDefinitions    = "~/.config/benchmgr/report_definitions.toml"
	defaultDispatchPool         = PoolPerDefinition
	defaultDispatchWorkers      = 8
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultNotifyRequestTimeout = 10
	defaultAPIBind              = "127.0.0.1:7490"
)

// Pool sizing policies accepted by dispatch.pool.
const (
	PoolPerDefinition = "per_definition"
	PoolFixed         = "fixed"
	PoolBounded       = "bounded"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:          defaultStateDir,
			LogDir:            defaultLogDir,
			AlertDefinitions:  defaultAlertDefinitions,
			ReportDefinitions: defaultReportDefinitions,
		},
		Dispatch: Dispatch{
			Pool:    defaultDispatchPool,
			Workers: defaultDispatchWorkers,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunSummary:     true,
			Failures:       true,
		},
		API: API{
			Bind: defaultAPIBind,
		},
	}
}
