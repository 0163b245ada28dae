package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only the admin user can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.AdminID != 0 && c.Sender().ID != opts.AdminID {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

// ChatAdminFunc reports whether a user is creator or administrator of a chat.
type ChatAdminFunc func(c tele.Context, userID int64) bool

// IsChatAdmin checks the sender's member status in the current chat.
func IsChatAdmin(c tele.Context, userID int64) bool {
	chat := c.Chat()
	if chat == nil {
		return false
	}
	member, err := c.Bot().ChatMemberOf(chat, &tele.User{ID: userID})
	if err != nil {
		return false
	}
	return member.Role == tele.Creator || member.Role == tele.Administrator
}
