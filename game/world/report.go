package world

import (
	"go.uber.org/zap"
)

// LogStatus writes one line per agent plus a level summary. It is run
// periodically by the status reporter task.
func LogStatus(l *Level, logger *zap.Logger) {
	st := l.Status()
	for _, a := range st.Agents {
		logger.Info("agent status",
			zap.String("agent", a.ID),
			zap.Stringer("state", a.State),
			zap.Float64("x", a.Position.X),
			zap.Float64("y", a.Position.Y),
			zap.Int("transitions", a.Transitions),
			zap.Int("kills", a.Kills),
		)
	}
	logger.Info("level status",
		zap.String("level", st.Name),
		zap.Uint64("tick", st.Tick),
		zap.Float64("sim_time", st.Time),
		zap.Bool("player_alive", st.Player.Alive),
		zap.Bool("player_hidden", st.Player.Hidden),
	)
}
