package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorLocalStorage marks an I/O failure of the on-device store. It is
// fatal to the current operation and surfaced immediately; it never leaves
// a half-written record because store writes run in one transaction.
var ErrorLocalStorage = errors.New("local storage error")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
