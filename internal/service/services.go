package service

import (
	"log/slog"

	"github.com/kirinyoku/eventhub/internal/clock"
	"github.com/kirinyoku/eventhub/internal/repository"
	redisrepo "github.com/kirinyoku/eventhub/internal/repository/redis"
	"github.com/kirinyoku/eventhub/internal/service/admin"
	"github.com/kirinyoku/eventhub/internal/service/checkin"
	"github.com/kirinyoku/eventhub/internal/service/notify"
	"github.com/kirinyoku/eventhub/internal/service/payment"
	"github.com/kirinyoku/eventhub/internal/service/query"
	"github.com/kirinyoku/eventhub/internal/service/reservation"
)

type Services struct {
	Reservation *reservation.Service
	CheckIn     *checkin.Service
	Payment     *payment.Service
	Query       *query.Service
	Admin       *admin.Service
}

type Config struct {
	Reservation reservation.Config
	Payment     payment.Config
	Query       query.Config
}

// Deps are the collaborators shared by every service. Cache, Notifier and
// Limiter may be nil.
type Deps struct {
	Store    repository.Store
	Cache    *redisrepo.Cache
	Notifier *notify.Notifier
	Limiter  reservation.Limiter
	Clock    clock.Clock
	Log      *slog.Logger
}

func NewServices(d Deps, cfg Config) *Services {
	return &Services{
		Reservation: reservation.New(d.Store, d.Notifier, d.Limiter, d.Clock, d.Log, cfg.Reservation),
		CheckIn:     checkin.New(d.Store, d.Notifier, d.Clock),
		Payment:     payment.New(d.Store, d.Notifier, d.Clock, cfg.Payment),
		Query:       query.New(d.Store, d.Cache, cfg.Query),
		Admin:       admin.New(d.Store, d.Notifier),
	}
}
