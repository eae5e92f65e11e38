// Package logging provides structured logging for the nori CLI using slog.
//
// Interactive commands log through a colorized TTY handler to stderr (or JSON
// with --log-format=json) and may fan out to a JSON log file. Hook commands,
// which run inside the host agent's session, log only to a file so nothing
// they emit can disturb the agent.
//
//	logger := logging.New(logging.Config{Level: slog.LevelInfo, Output: os.Stderr})
//	ctx = logging.NewContext(ctx, logger)
//	logging.FromContext(ctx).Debug("resolved profile", "name", name)
//
// Attribute values whose keys look sensitive (password, token, ...) are
// masked by the text handler.
package logging
