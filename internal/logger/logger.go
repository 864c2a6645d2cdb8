// Package logger is the single log output for motorlab with a prefix and a
// quiet switch for the acquisition path.
package logger

import "log"

// Quiet suppresses Info messages; Error always prints.
var Quiet bool

func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf("motorlab: "+format, args...)
}

func Error(format string, args ...interface{}) {
	log.Printf("motorlab: "+format, args...)
}
