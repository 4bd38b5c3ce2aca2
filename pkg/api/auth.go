// Package api содержит DTO запросов и ответов HTTP API.
// Имена полей на проводе — camelCase, как их ожидает фронтенд.
package api

// RegisterRequest представляет запрос на регистрацию нового пользователя.
// Session id выданного captcha challenge передается заголовком X-Captcha-ID.
type RegisterRequest struct {
	Username string `json:"username"` // username пользователя
	Password string `json:"password"` // пароль открытым текстом (TLS — забота транспорта)
	Email    string `json:"email"`    // email пользователя
	Captcha  string `json:"captcha"`  // код с картинки
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	Message string `json:"message"` // сообщение об успешной регистрации
	User    *User  `json:"user"`    // созданный пользователь без хеша пароля
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse представляет ответ с токеном сессии
type LoginResponse struct {
	Token string `json:"token"` // подписанный JWT
	User  *User  `json:"user"`  // пользователь без хеша пароля
}

// CheckUserResponse представляет ответ проверки занятости username
type CheckUserResponse struct {
	Exists bool  `json:"exists"` // зарегистрирован ли username
	User   *User `json:"user"`   // публичный профиль, если зарегистрирован
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Message string `json:"message"` // описание ошибки для клиента
}

// MessageResponse представляет ответ с информационным сообщением
type MessageResponse struct {
	Message string `json:"message"`
}
