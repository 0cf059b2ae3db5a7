package helpers

// SessionKey is the redis hash holding a user's active login session.
func SessionKey(userID string) string {
	return "user:session:" + userID
}
