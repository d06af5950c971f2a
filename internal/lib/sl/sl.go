// Package sl дополняет slog короткими помощниками, чтобы ошибки
// попадали в лог одним и тем же структурированным полем.
package sl

import "log/slog"

// Err упаковывает ошибку в атрибут с ключом "error":
//
//	log.Error("failed to register user", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
