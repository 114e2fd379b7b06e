package config

// NewAppConfigForTest creates an AppConfig reading path
func NewAppConfigForTest(path string) *AppConfig {
	return &AppConfig{path: path}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, filePath, sqlitePath, projectID, gcsBucket string) *Repository {
	return &Repository{
		backend:    backend,
		filePath:   filePath,
		sqlitePath: sqlitePath,
		projectID:  projectID,
		gcsBucket:  gcsBucket,
	}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{
		botToken:  botToken,
		channelID: channelID,
		topCities: 3,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewReportForTest creates a Report config for testing purposes
func NewReportForTest(font, fontBold string, forceColor bool) *Report {
	return &Report{font: font, fontBold: fontBold, forceColor: forceColor}
}
