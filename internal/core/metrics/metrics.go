// Package metrics 业务指标，统一挂在默认 registry 上由 /metrics 暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sales_app"

var (
	SalesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_created_total",
		Help:      "Sales registered, by product.",
	}, []string{"product"})

	SaleStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sale_status_changes_total",
		Help:      "Sale status updates, by target status.",
	}, []string{"status"})

	CaptchaValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captcha_validations_total",
		Help:      "Captcha checks on login, by result.",
	}, []string{"result"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts, by result.",
	}, []string{"result"})
)

// Result 布尔结果转 label
func Result(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}
