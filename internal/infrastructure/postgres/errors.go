package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL エラーコード
const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
	codeQueryCanceled    = "57014" // statement_timeout によるキャンセル
)

// isUniqueViolation は一意制約違反かを判定する
func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// isLockTimeout はロック待ちのタイムアウトかを判定する
func isLockTimeout(err error) bool {
	var pgErr *pq.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeLockNotAvailable || pgErr.Code == codeQueryCanceled
}
