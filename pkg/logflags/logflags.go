package logflags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger is the subset of a sugared zap logger the rest of the program
// logs through.
type Logger interface {
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Debugf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// DefaultLogDesc is the --logStr value meaning "nothing selected".
const DefaultLogDesc = ""

var (
	scan bool
	http bool

	logOut io.Writer = os.Stderr
)

var errLogstrWithoutLog = errors.New("--logStr specified without --logFlag")

// Setup turns on the log components named in logstr and points output
// at logDest when given a path.
func Setup(logFlag bool, logstr, logDest string) error {
	if logDest != "" {
		f, err := os.Create(logDest)
		if err != nil {
			return err
		}
		logOut = f
	}

	if !logFlag {
		if logstr != DefaultLogDesc {
			return errLogstrWithoutLog
		}
		return nil
	}

	if logstr == DefaultLogDesc {
		logstr = "scan"
	}
	for _, component := range strings.Split(logstr, ",") {
		switch component {
		case "scan":
			scan = true
		case "http":
			http = true
		default:
			return fmt.Errorf("unknown log component %q", component)
		}
	}
	return nil
}

// Scan returns true if scan and narrow passes should log.
func Scan() bool {
	return scan
}

// HTTP returns true if the service layer should log requests.
func HTTP() bool {
	return http
}
