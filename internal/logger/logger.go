// Package logger builds the application's zap logger.
package logger

import (
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New returns a JSON production logger when env is "prod" and a console
// development logger otherwise.  The service field is attached to every
// entry.
func New(env string) (*zap.Logger, error) {
    var cfg zap.Config
    if env == "prod" {
        cfg = zap.NewProductionConfig()
        cfg.EncoderConfig.TimeKey = "ts"
        cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    } else {
        cfg = zap.NewDevelopmentConfig()
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }
    l, err := cfg.Build()
    if err != nil {
        return nil, err
    }
    return l.With(zap.String("service", "cinemax")), nil
}
