package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
	MinPasswordLen    = 6
)

// ValidationError carries a message that is safe to show to the user.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

var emailRe = regexp.MustCompile(`^\w+([.+-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

// ValidateTitle 验证任务标题（去空格后不能为空）
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ValidationError("Please provide a task title")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return ValidationError(fmt.Sprintf("Title cannot exceed %d characters", MaxTitleLen))
	}
	return nil
}

func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(strings.TrimSpace(desc)) > MaxDescriptionLen {
		return ValidationError(fmt.Sprintf("Description cannot exceed %d characters", MaxDescriptionLen))
	}
	return nil
}

// ValidateEmail checks the address shape only.
func ValidateEmail(email string) error {
	if email == "" {
		return ValidationError("Please provide an email")
	}
	if !emailRe.MatchString(email) {
		return ValidationError("Please provide a valid email")
	}
	return nil
}

func ValidatePassword(pwd string) error {
	if len(pwd) < MinPasswordLen {
		return ValidationError(fmt.Sprintf("Password must be at least %d characters", MinPasswordLen))
	}
	return nil
}

// ParseDueDate 解析截止日期，支持 RFC3339 与 YYYY-MM-DD；空字符串表示无截止日期
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, ValidationError(fmt.Sprintf("Invalid due date %q", s))
}
