/******************************************************************************
 *
 *  Description :
 *    Package exposes info, warning and error loggers.
 *
 *****************************************************************************/
package logs

import (
	"log"
	"os"
)

var (
	Info *log.Logger
	Warn *log.Logger
	Err  *log.Logger
)

// The loggers are usable without explicit initialization so that tests and
// tools get sane defaults; Init reconfigures them for the server.
func init() {
	Init()
}

func Init() {
	Info = log.New(os.Stdout, "I", log.LstdFlags|log.Lshortfile)
	Warn = log.New(os.Stdout, "W", log.LstdFlags|log.Lshortfile)
	Err = log.New(os.Stdout, "E", log.LstdFlags|log.Lshortfile)
}
