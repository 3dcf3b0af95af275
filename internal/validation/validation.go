// Package validation содержит функции валидации входных данных.
package validation

import "unicode"

// IsValidUsername проверяет имя пользователя: от 3 до 64 символов,
// латинские буквы, цифры, точка, дефис и подчёркивание.
func IsValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 64 {
		return false
	}

	for _, ch := range username {
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case unicode.IsDigit(ch):
		case ch == '.' || ch == '-' || ch == '_':
		default:
			return false
		}
	}

	return true
}

// IsValidHexColor проверяет цвет в формате #RGB или #RRGGBB.
func IsValidHexColor(color string) bool {
	if len(color) != 4 && len(color) != 7 {
		return false
	}
	if color[0] != '#' {
		return false
	}

	for i := 1; i < len(color); i++ {
		ch := color[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}

	return true
}
