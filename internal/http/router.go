package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Zones        *ZoneHandler
	Reservations *ReservationHandler
	Health       http.Handler
	Metrics      http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Zones != nil || cfg.Reservations != nil {
		mux.HandleFunc("/zones", func(w http.ResponseWriter, r *http.Request) {
			if cfg.Zones == nil {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Zones.List(w, r)
			case http.MethodPost:
				cfg.Zones.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/zones/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/zones/")
			id, sub, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithZoneID(r.Context(), id))

			switch sub {
			case "":
				if cfg.Zones == nil {
					http.NotFound(w, r)
					return
				}
				switch r.Method {
				case http.MethodGet:
					cfg.Zones.Get(w, r)
				case http.MethodPut:
					cfg.Zones.Update(w, r)
				case http.MethodDelete:
					cfg.Zones.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "availability":
				if cfg.Reservations == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Reservations.Availability(w, r)
			case "reservations":
				if cfg.Reservations == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Reservations.ZoneReservations(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Reservations != nil {
		mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Reservations.CreateBooking(w, r)
		})

		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Reservations.CreateEvent(w, r)
		})
		mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/events/")
			id, sub, _ := strings.Cut(rest, "/")
			if id == "" || sub != "cancellations" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			r = r.WithContext(ContextWithReservationID(r.Context(), id))
			cfg.Reservations.EventCancellations(w, r)
		})

		mux.HandleFunc("/reservations/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/reservations/")
			id, sub, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithReservationID(r.Context(), id))

			switch sub {
			case "":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Reservations.Update(w, r)
			case "cancel":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Reservations.Cancel(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	// Health and metrics sit outside the actor middleware; probes and
	// scrapers carry no actor headers.
	outer := http.NewServeMux()
	outer.Handle("/", handler)
	if cfg.Health != nil {
		outer.Handle("/healthz", cfg.Health)
	}
	if cfg.Metrics != nil {
		outer.Handle("/metrics", cfg.Metrics)
	}
	return outer
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
