// Package logger — единый вывод логов tc-tempus с префиксом и учётом quiet/verbose.
package logger

import "log"

const prefix = "tc-tempus: "

var (
	// Quiet при true отключает информационные сообщения (Info); Error выводится всегда.
	Quiet bool
	// Verbose включает отладочные сообщения (Debug), например посекундный ход передачи.
	Verbose bool
)

// Info выводит сообщение с префиксом "tc-tempus: ", если Quiet == false.
func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf(prefix+format, args...)
}

// Error выводит сообщение об ошибке с префиксом "tc-tempus: " всегда.
func Error(format string, args ...interface{}) {
	log.Printf(prefix+format, args...)
}

// Debug выводит сообщение только при Verbose.
func Debug(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	log.Printf(prefix+format, args...)
}
