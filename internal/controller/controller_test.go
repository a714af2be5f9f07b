package controller

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/joperezr/SmartHomePi/internal/smarthome"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method  string
	payload string
	timeout time.Duration
}

type fakeInvoker struct {
	status int
	body   string
	err    error
	calls  []call
}

func (f *fakeInvoker) Invoke(_ context.Context, method string, payload []byte, timeout time.Duration) (int, []byte, error) {
	f.calls = append(f.calls, call{method: method, payload: string(payload), timeout: timeout})
	if f.err != nil {
		return 0, nil, f.err
	}
	return f.status, []byte(f.body), nil
}

func TestSetLightBulbState(t *testing.T) {
	inv := &fakeInvoker{status: 200, body: `{"status":"Success","message":"The light bulb 2 was turned On"}`}
	c := newController(inv, nil)

	require.NoError(t, c.SetLightBulbState(context.Background(), 2, true))
	require.Len(t, inv.calls, 1)
	assert.Equal(t, smarthome.MethodChangeLightBulbState, inv.calls[0].method)
	assert.JSONEq(t, `{"id":2,"state":true}`, inv.calls[0].payload)
	assert.Equal(t, 30*time.Second, inv.calls[0].timeout)
}

func TestGetLightBulbStates(t *testing.T) {
	inv := &fakeInvoker{status: 200, body: `[{"id":1,"state":true},{"id":3,"state":false}]`}
	c := newController(inv, nil)

	states, err := c.GetLightBulbStates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []smarthome.LightBulbState{{ID: 1, On: true}, {ID: 3, On: false}}, states)
	assert.Equal(t, smarthome.MethodGetLightBulbStatus, inv.calls[0].method)
	assert.Empty(t, inv.calls[0].payload)
}

func TestGetEnvironment(t *testing.T) {
	inv := &fakeInvoker{status: 200, body: `{"temperatureInFahrenheit":72.5,"preassureInPascals":101325}`}
	c := newController(inv, nil)

	env, err := c.GetEnvironment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, smarthome.Environment{TemperatureF: 72.5, PressurePa: 101325}, env)
	assert.Equal(t, smarthome.MethodGetEnvironmentReading, inv.calls[0].method)
}

func TestNonSuccessStatusIsAnError(t *testing.T) {
	ops := map[string]func(*Controller) error{
		smarthome.MethodChangeLightBulbState: func(c *Controller) error {
			return c.SetLightBulbState(context.Background(), 1, true)
		},
		smarthome.MethodGetLightBulbStatus: func(c *Controller) error {
			_, err := c.GetLightBulbStates(context.Background())
			return err
		},
		smarthome.MethodGetEnvironmentReading: func(c *Controller) error {
			_, err := c.GetEnvironment(context.Background())
			return err
		},
	}

	for method, op := range ops {
		for _, status := range []int{201, 404, 500, 501, 504} {
			t.Run(fmt.Sprintf("%s/%d", method, status), func(t *testing.T) {
				body := fmt.Sprintf(`{"message":"status %d"}`, status)
				c := newController(&fakeInvoker{status: status, body: body}, nil)

				err := op(c)
				require.Error(t, err)

				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, method, se.Method)
				assert.Equal(t, status, se.Status)
				assert.Equal(t, body, string(se.Body))

				code, ok := StatusCode(err)
				assert.True(t, ok)
				assert.Equal(t, status, code)
			})
		}
	}
}

func TestNonSuccessStatusWithoutBody(t *testing.T) {
	c := newController(&fakeInvoker{status: 500}, nil)

	err := c.SetLightBulbState(context.Background(), 7, true)
	assert.EqualError(t, err, "ChangeLightBulbState returned status 500")
}

func TestTimeoutSurfaces(t *testing.T) {
	c := newController(&fakeInvoker{err: fmt.Errorf("invoke: %w", ErrTimeout)}, nil)

	_, err := c.GetEnvironment(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	_, isStatus := StatusCode(err)
	assert.False(t, isStatus)
}

func TestUndecodableBody(t *testing.T) {
	c := newController(&fakeInvoker{status: 200, body: `{"id":`}, nil)

	_, err := c.GetLightBulbStates(context.Background())
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	released := 0
	c := newController(&fakeInvoker{status: 200, body: `[]`}, func() { released++ })

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, released)

	_, err := c.GetLightBulbStates(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewRequiresConnectionString(t *testing.T) {
	for _, cs := range []string{"", "   "} {
		_, err := New(Config{ConnectionString: cs})
		assert.ErrorIs(t, err, ErrMissingConnectionString)
	}
}

func TestNewWrapsConnectionFailures(t *testing.T) {
	_, err := New(Config{ConnectionString: "http://not-a-broker"})
	var ie *InitError
	assert.ErrorAs(t, err, &ie)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = New(Config{ConnectionString: "tcp://" + addr})
	require.Error(t, err)
	assert.True(t, errors.As(err, &ie), "got %v", err)
}

func TestInvocationOutcomesAreCounted(t *testing.T) {
	ok := invocations.WithLabelValues(smarthome.MethodGetEnvironmentReading, "ok")
	timeout := invocations.WithLabelValues(smarthome.MethodGetEnvironmentReading, "timeout")
	okBefore, timeoutBefore := testutil.ToFloat64(ok), testutil.ToFloat64(timeout)

	c := newController(&fakeInvoker{status: 200, body: `{}`}, nil)
	_, err := c.GetEnvironment(context.Background())
	require.NoError(t, err)

	c = newController(&fakeInvoker{err: ErrTimeout}, nil)
	_, err = c.GetEnvironment(context.Background())
	require.ErrorIs(t, err, ErrTimeout)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, timeoutBefore+1, testutil.ToFloat64(timeout))
}
