package utils

import (
	"time"

	"gopkg.in/go-playground/validator.v9"
)

//Validate -_-
var Validate *validator.Validate

func init() {
	Validate = validator.New()
}

//NowMillis Gets current time in milliseconds since epoch, the unit all
//device timestamps are stored in.
func NowMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}
