// Package logger — единый вывод логов ecu-core с префиксом и учётом quiet.
package logger

import "log"

// Quiet при true отключает информационные сообщения (Info); Error выводится всегда.
var Quiet bool

// Info выводит сообщение с префиксом "ecu-core: ", если Quiet == false.
func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf("ecu-core: "+format, args...)
}

// Error выводит сообщение об ошибке с префиксом "ecu-core: " всегда.
func Error(format string, args ...interface{}) {
	log.Printf("ecu-core: "+format, args...)
}
