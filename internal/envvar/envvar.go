package envvar

const (
	// SpeechgateEnv is the environment variable used to determine the environment
	SpeechgateEnv = "SPEECHGATE_ENV"

	// SpeechgateServerHTTPPort is the environment variable used to override the HTTP port
	SpeechgateServerHTTPPort = "SPEECHGATE_SERVER_HTTP_PORT"

	// SpeechgateModelsPath is the environment variable used to override the models directory
	SpeechgateModelsPath = "SPEECHGATE_MODELS_PATH"

	// SpeechgateRunnerPath is the environment variable used to override the runner binary
	SpeechgateRunnerPath = "SPEECHGATE_RUNNER_PATH"

	// SpeechgateLogFile is the environment variable used to enable file logging
	SpeechgateLogFile = "SPEECHGATE_LOG_FILE"
)

// All lists every environment variable read by speechgate.
var All = []string{
	SpeechgateEnv,
	SpeechgateServerHTTPPort,
	SpeechgateModelsPath,
	SpeechgateRunnerPath,
	SpeechgateLogFile,
}
