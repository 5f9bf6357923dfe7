/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, os.Stdout, nil)
}

// SetupWithWriter writes human-readable output to out and, when jsonOut is
// set, a machine-readable copy of every event to jsonOut.
func SetupWithWriter(environment string, out io.Writer, jsonOut io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var writer io.Writer = zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stdout}
	if jsonOut != nil {
		writer = zerolog.MultiLevelWriter(writer, jsonOut)
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(Level(environment))
	log.Logger = logger
	return logger
}

// Level maps the environment name to a log level.
func Level(environment string) zerolog.Level {
	if strings.EqualFold(environment, "development") {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
