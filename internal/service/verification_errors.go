package service

import "errors"

// Ошибки пайплайна верификации. Используются хендлерами для стабильного
// маппинга error_type.
var (
	// ErrVerificationNotFound намеренно схлопывает все причины отказа:
	// неверный код, чужой хендл, чужой userId и истёкший срок неразличимы
	// для вызывающей стороны — защита от перебора.
	ErrVerificationNotFound = errors.New("verification_not_found")

	// ErrUsernameTaken возвращается при попытке завершить регистрацию с
	// занятым именем пользователя.
	ErrUsernameTaken = errors.New("username_taken")

	// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
	ErrInvalidCredentials = errors.New("invalid_credentials")
)
