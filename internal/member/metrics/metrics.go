package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the member module.
type Metrics struct {
	MembersRegistered prometheus.Counter
	LoginFailures     prometheus.Counter
	AdminsApproved    prometheus.Counter
}

// New creates a new Metrics instance with all member module metrics registered.
func New() *Metrics {
	return &Metrics{
		MembersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givebridge_members_registered_total",
			Help: "Total number of member accounts created",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givebridge_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		AdminsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givebridge_admins_approved_total",
			Help: "Total number of admin accounts approved by a superadmin",
		}),
	}
}

func (m *Metrics) IncrementRegistered() {
	m.MembersRegistered.Inc()
}

func (m *Metrics) IncrementLoginFailure() {
	m.LoginFailures.Inc()
}

func (m *Metrics) IncrementAdminApproved() {
	m.AdminsApproved.Inc()
}
