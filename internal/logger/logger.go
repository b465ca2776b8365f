package logger

import (
	"go.uber.org/zap"
)

// Init sets the global zap logger. Development gets the console encoder,
// everything else the production JSON encoder.
func Init(environment string) error {
	var (
		l   *zap.Logger
		err error
	)

	if environment == "development" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(l)

	return nil
}
