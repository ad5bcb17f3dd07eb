package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CSS optimiser settings.
const (
	cssMaxIter      = 200
	cssLearningRate = 0.005
	cssMomentum     = 0.9
	cssDecay        = 0.99
	cssPatience     = 20
	coeffBound      = 0.99
	minVariance     = 1e-12
)

// sarimaModel is a seasonal ARIMA fitted by conditional sum of squares.
type sarimaModel struct {
	order SARIMAOrder

	ar, ma, sar, sma []float64
	constant         bool // estimate a mean for the differenced series
	intercept        float64
	variance         float64
	aic, bic         float64
	logLik           float64
	start            int // first residual included in the CSS objective

	original  []float64
	levels    [][]float64 // levels[k] is the series after k non-seasonal differences
	seasonals [][]float64 // seasonals[k] is levels[d] after k seasonal differences
	residuals []float64
}

func newSARIMAModel(order SARIMAOrder) *sarimaModel {
	return &sarimaModel{
		order:    order,
		constant: true,
		ar:       make([]float64, order.P),
		ma:       make([]float64, order.Q),
		sar:      make([]float64, order.SP),
		sma:      make([]float64, order.SQ),
	}
}

// paramCount is the number of estimated coefficients, the constant included.
func (m *sarimaModel) paramCount() int {
	k := m.order.P + m.order.Q + m.order.SP + m.order.SQ
	if m.constant {
		k++
	}
	return k
}

// fit differences the series, estimates coefficients by momentum gradient
// descent on the conditional sum of squares and computes AIC/BIC.
func (m *sarimaModel) fit(ctx context.Context, values []float64) error {
	if err := m.order.Validate(); err != nil {
		return err
	}
	if need := m.order.minObservations(); len(values) < need {
		return fmt.Errorf("%w: order %s needs at least %d observations, have %d",
			analytics.ErrInvalidParameter, m.order, need, len(values))
	}

	m.original = values
	m.levels = [][]float64{values}
	for i := 0; i < m.order.D; i++ {
		next := analytics.Diff(m.levels[i])
		if len(next) == 0 {
			return fmt.Errorf("%w: differencing emptied the series", analytics.ErrModelFit)
		}
		m.levels = append(m.levels, next)
	}
	m.seasonals = [][]float64{m.levels[m.order.D]}
	for i := 0; i < m.order.SD; i++ {
		next := analytics.SeasonalDiff(m.seasonals[i], m.order.M)
		if len(next) == 0 {
			return fmt.Errorf("%w: seasonal differencing emptied the series", analytics.ErrModelFit)
		}
		m.seasonals = append(m.seasonals, next)
	}

	y := m.working()
	m.intercept = 0
	if m.constant {
		m.intercept = stat.Mean(y, nil)
	}
	m.initCoefficients(y)

	if err := m.optimize(ctx, y); err != nil {
		return err
	}
	m.informationCriteria()
	return nil
}

// working is the fully differenced series the ARMA part is fitted on.
func (m *sarimaModel) working() []float64 {
	return m.seasonals[len(m.seasonals)-1]
}

// initCoefficients seeds AR terms from the Yule-Walker equations and the
// seasonal AR terms from the seasonal autocorrelations.
func (m *sarimaModel) initCoefficients(y []float64) {
	p := m.order.P
	maxLag := p
	if m.order.SP > 0 {
		maxLag = max(maxLag, m.order.SP*m.order.M)
	}
	acf := analytics.ACF(y, maxLag)

	if p > 0 && acf != nil && len(acf) > p {
		r := mat.NewSymDense(p, nil)
		for i := 0; i < p; i++ {
			for j := i; j < p; j++ {
				r.SetSym(i, j, acf[j-i])
			}
		}
		rhs := mat.NewVecDense(p, acf[1:p+1])

		var chol mat.Cholesky
		var phi mat.VecDense
		if chol.Factorize(r) && chol.SolveVecTo(&phi, rhs) == nil {
			for i := 0; i < p; i++ {
				m.ar[i] = clamp(phi.AtVec(i), -coeffBound, coeffBound)
			}
		} else {
			for i := 0; i < p; i++ {
				m.ar[i] = acf[i+1] * 0.5
			}
		}
	}

	for i := range m.sar {
		lag := (i + 1) * m.order.M
		if acf != nil && lag < len(acf) {
			m.sar[i] = acf[lag] * 0.5
		}
	}
	for i := range m.ma {
		m.ma[i] = 0.1
	}
	for i := range m.sma {
		m.sma[i] = 0.1
	}
}

// predictAt is the one-step prediction of y[t] given history and residuals.
// Terms reaching before the start of the series are skipped.
func (m *sarimaModel) predictAt(y, resid []float64, t, residLimit int) float64 {
	pred := m.intercept
	for i, c := range m.ar {
		if t-i-1 >= 0 {
			pred += c * (y[t-i-1] - m.intercept)
		}
	}
	for i, c := range m.sar {
		if lag := (i + 1) * m.order.M; t-lag >= 0 {
			pred += c * (y[t-lag] - m.intercept)
		}
	}
	for i, c := range m.ma {
		if k := t - i - 1; k >= 0 && k < residLimit {
			pred += c * resid[k]
		}
	}
	for i, c := range m.sma {
		if k := t - (i+1)*m.order.M; k >= 0 && k < residLimit {
			pred += c * resid[k]
		}
	}
	return pred
}

func (m *sarimaModel) residualsFor(y []float64, start int) ([]float64, float64) {
	n := len(y)
	resid := make([]float64, n)
	sse := 0.0
	for t := start; t < n; t++ {
		resid[t] = y[t] - m.predictAt(y, resid, t, n)
		sse += resid[t] * resid[t]
	}
	return resid, sse
}

func (m *sarimaModel) optimize(ctx context.Context, y []float64) error {
	n := len(y)
	period := m.order.M
	start := max(max(m.order.P, m.order.Q), max(m.order.SP*period, m.order.SQ*period))
	if start >= n-10 {
		start = 0
	}

	groups := [][]float64{m.ar, m.ma, m.sar, m.sma}
	velocity := make([][]float64, len(groups))
	best := make([][]float64, len(groups))
	for g, coeffs := range groups {
		velocity[g] = make([]float64, len(coeffs))
		best[g] = make([]float64, len(coeffs))
	}

	bestSSE := math.Inf(1)
	rate := cssLearningRate
	stale := 0

	for iter := 0; iter < cssMaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", analytics.ErrModelFit, err)
		}

		resid, sse := m.residualsFor(y, start)
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			break
		}
		if sse < bestSSE {
			bestSSE = sse
			for g, coeffs := range groups {
				copy(best[g], coeffs)
			}
			stale = 0
		} else {
			stale++
			if stale > cssPatience {
				break
			}
		}

		grads := make([][]float64, len(groups))
		for g, coeffs := range groups {
			grads[g] = make([]float64, len(coeffs))
		}
		for t := start; t < n; t++ {
			e := resid[t]
			for i := range m.ar {
				if t-i-1 >= 0 {
					grads[0][i] -= 2 * e * (y[t-i-1] - m.intercept)
				}
			}
			for i := range m.ma {
				if t-i-1 >= 0 {
					grads[1][i] -= 2 * e * resid[t-i-1]
				}
			}
			for i := range m.sar {
				if lag := (i + 1) * period; t-lag >= 0 {
					grads[2][i] -= 2 * e * (y[t-lag] - m.intercept)
				}
			}
			for i := range m.sma {
				if lag := (i + 1) * period; t-lag >= 0 {
					grads[3][i] -= 2 * e * resid[t-lag]
				}
			}
		}

		for g, coeffs := range groups {
			for i := range coeffs {
				velocity[g][i] = cssMomentum*velocity[g][i] + rate*grads[g][i]/float64(n)
				coeffs[i] = clamp(coeffs[i]-velocity[g][i], -coeffBound, coeffBound)
			}
		}
		rate *= cssDecay
	}

	if math.IsInf(bestSSE, 1) {
		return fmt.Errorf("%w: conditional sum of squares did not converge for %s", analytics.ErrModelFit, m.order)
	}
	for g, coeffs := range groups {
		copy(coeffs, best[g])
	}

	resid, sse := m.residualsFor(y, start)
	m.residuals = resid
	m.start = start
	count := n - start
	params := m.paramCount()
	if count > params {
		m.variance = sse / float64(count-params)
	} else {
		m.variance = sse / float64(max(count, 1))
	}
	return nil
}

func (m *sarimaModel) informationCriteria() {
	n := float64(len(m.residuals) - m.start)
	k := float64(m.paramCount())

	sse := 0.0
	for _, r := range m.residuals[m.start:] {
		sse += r * r
	}
	v := math.Max(m.variance, minVariance)
	m.logLik = -n/2*math.Log(2*math.Pi) - n/2*math.Log(v) - sse/(2*v)
	m.aic = -2*m.logLik + 2*k
	m.bic = -2*m.logLik + k*math.Log(n)
}

// forecast predicts steps values on the original scale with intervals.
func (m *sarimaModel) forecast(steps int, confidence float64) (preds, lower, upper []float64) {
	y := m.working()
	n := len(y)

	ext := make([]float64, n+steps)
	copy(ext, y)
	resid := make([]float64, n+steps)
	copy(resid, m.residuals)

	for h := 0; h < steps; h++ {
		// future shocks are zero, so only in-sample residuals contribute
		ext[n+h] = m.predictAt(ext, resid, n+h, n)
	}
	preds = m.integrate(ext[n:])

	z := zScore(confidence)
	lower = make([]float64, steps)
	upper = make([]float64, steps)
	sd := math.Sqrt(math.Max(m.variance, 0))
	for h := 0; h < steps; h++ {
		growth := 1.0
		if m.order.D > 0 {
			growth *= math.Sqrt(float64(h + 1))
		}
		if m.order.SD > 0 && m.order.M > 0 {
			growth *= math.Sqrt(float64(h/m.order.M + 1))
		}
		lower[h] = preds[h] - z*sd*growth
		upper[h] = preds[h] + z*sd*growth
	}
	return preds, lower, upper
}

// integrate undoes seasonal then non-seasonal differencing using the tails
// of each stored level.
func (m *sarimaModel) integrate(diffed []float64) []float64 {
	out := make([]float64, len(diffed))
	copy(out, diffed)

	period := m.order.M
	for k := len(m.seasonals) - 1; k >= 1; k-- {
		base := m.seasonals[k-1]
		nb := len(base)
		for j := range out {
			if j < period {
				out[j] += base[nb-period+j]
			} else {
				out[j] += out[j-period]
			}
		}
	}

	for k := len(m.levels) - 1; k >= 1; k-- {
		base := m.levels[k-1]
		prev := base[len(base)-1]
		for j := range out {
			out[j] += prev
			prev = out[j]
		}
	}
	return out
}

// fittedValues maps in-sample one-step predictions back to the original
// scale. Positions consumed by differencing or the CSS warm-up are NaN.
func (m *sarimaModel) fittedValues() []float64 {
	n := len(m.original)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	offset := n - len(m.working())
	for t := m.start; t < len(m.residuals); t++ {
		// the residual is the same on the differenced and original scale
		out[offset+t] = m.original[offset+t] - m.residuals[t]
	}
	return out
}

func (m *sarimaModel) parameters() map[string]interface{} {
	return map[string]interface{}{
		"order":       m.order.String(),
		"ar":          m.ar,
		"ma":          m.ma,
		"seasonal_ar": m.sar,
		"seasonal_ma": m.sma,
		"intercept":   m.intercept,
		"sigma2":      m.variance,
		"aic":         m.aic,
		"bic":         m.bic,
	}
}

func (m *sarimaModel) result(steps int, confidence float64) *ForecastResult {
	preds, lower, upper := m.forecast(steps, confidence)
	fitted := m.fittedValues()
	res := &ForecastResult{
		Predictions: preds,
		LowerBound:  lower,
		UpperBound:  upper,
		Fitted:      fitted,
		ModelInfo:   ModelInfo{Parameters: m.parameters()},
	}
	fillModelInfo(&res.ModelInfo, m.original, fitted)
	return res
}

// SARIMAXForecaster fits a seasonal ARIMA with an explicit order.
type SARIMAXForecaster struct{}

// NewSARIMAXForecaster creates a new SARIMAX forecaster
func NewSARIMAXForecaster() *SARIMAXForecaster {
	return &SARIMAXForecaster{}
}

func init() {
	RegisterForecaster(NewSARIMAXForecaster())
}

// Name returns the method identifier
func (f *SARIMAXForecaster) Name() Method {
	return SARIMAX
}

// Forecast fits config.Order, defaulting to (2,0,0)x(1,1,1,12). Orders with
// any differencing are fitted without a constant, so forecasts do not drift
// by a fitted mean every season.
func (f *SARIMAXForecaster) Forecast(ctx context.Context, values []float64, config ForecastConfig) (*ForecastResult, error) {
	if err := config.validateHorizon(); err != nil {
		return nil, err
	}
	order := config.Order
	if order == (SARIMAOrder{}) {
		order = DefaultSARIMAOrder()
	}
	if order.M == 0 && (order.SP > 0 || order.SD > 0 || order.SQ > 0) {
		order.M = config.SeasonalPeriod
	}

	model := newSARIMAModel(order)
	model.constant = order.D == 0 && order.SD == 0
	if err := model.fit(ctx, values); err != nil {
		return nil, err
	}

	res := model.result(config.Horizon, config.Confidence)
	res.ModelInfo.Algorithm = string(SARIMAX)
	if err := checkOutput(SARIMAX, res, config.Horizon); err != nil {
		return nil, err
	}
	return res, nil
}

func clamp(v, lower, upper float64) float64 {
	return math.Min(math.Max(v, lower), upper)
}
