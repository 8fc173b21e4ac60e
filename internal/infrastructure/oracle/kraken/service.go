package krakenoracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/pkg/mathutil"
)

const (
	// KrakenWebSocketURL is the base url to open a connection with kraken.
	KrakenWebSocketURL = "ws.kraken.com"
)

// Oracle is a rate oracle fed by the ticker channel of the kraken websocket
// API. The rate is the last trade price of the ticker, in 1e18 precision
// units. A rate older than maxAge is reported as not valid.
type Oracle struct {
	address string
	ticker  string
	url     string
	maxAge  time.Duration

	conn     *websocket.Conn
	lock     *sync.RWMutex
	rate     decimal.Decimal
	updated  time.Time
	quitChan chan struct{}
}

// NewOracle returns an oracle for the given kraken ticker, ie. ETH/USD.
func NewOracle(
	address, ticker string, maxAge time.Duration,
) (*Oracle, error) {
	return newOracle(
		address, ticker, fmt.Sprintf("wss://%s", KrakenWebSocketURL), maxAge,
	)
}

func newOracle(
	address, ticker, url string, maxAge time.Duration,
) (*Oracle, error) {
	if len(ticker) <= 0 {
		return nil, fmt.Errorf("missing ticker")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("max age must be positive")
	}
	return &Oracle{
		address:  address,
		ticker:   ticker,
		url:      url,
		maxAge:   maxAge,
		lock:     &sync.RWMutex{},
		rate:     decimal.Zero,
		quitChan: make(chan struct{}, 1),
	}, nil
}

func (o *Oracle) Address() string {
	return o.address
}

func (o *Oracle) CurrentRate(_ context.Context) (decimal.Decimal, bool) {
	o.lock.RLock()
	defer o.lock.RUnlock()

	if o.updated.IsZero() || time.Since(o.updated) > o.maxAge {
		return o.rate, false
	}
	return o.rate, o.rate.IsPositive()
}

// Start connects to kraken and keeps the rate updated until Stop is called.
// The connection is re-established whenever it drops unexpectedly.
func (o *Oracle) Start() error {
	conn, err := connectAndSubscribe(o.url, o.ticker)
	if err != nil {
		return err
	}
	o.conn = conn

	mustReconnect, err := o.start()
	for mustReconnect {
		log.WithError(err).Warn(
			"oracle: connection dropped unexpectedly, trying to reconnect",
		)
		// nolint
		o.conn.Close()

		conn, err = connectAndSubscribe(o.url, o.ticker)
		if err != nil {
			return err
		}
		o.conn = conn

		log.Debug("oracle: connection re-established")
		mustReconnect, err = o.start()
	}
	return err
}

func (o *Oracle) Stop() {
	o.quitChan <- struct{}{}
}

func (o *Oracle) start() (mustReconnect bool, err error) {
	done := make(chan struct{})
	defer close(done)

	msgChan := make(chan []byte)
	errChan := make(chan error, 1)
	go func() {
		for {
			_, msg, err := o.conn.ReadMessage()
			if err != nil {
				errChan <- err
				return
			}
			select {
			case msgChan <- msg:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-o.quitChan:
			return false, o.conn.Close()
		case err := <-errChan:
			// Any drop other than a clean close from the server is retried.
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return false, err
			}
			return true, err
		case msg := <-msgChan:
			rate, ok := parseTicker(msg, o.ticker)
			if !ok {
				continue
			}
			o.setRate(rate, time.Now())
		}
	}
}

func (o *Oracle) setRate(rate decimal.Decimal, at time.Time) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.rate = rate
	o.updated = at
}

// parseTicker extracts the last trade price from a kraken ticker message:
// [channelID, {"c": ["price", "volume"], ...}, "ticker", "PAIR"].
func parseTicker(msg []byte, ticker string) (decimal.Decimal, bool) {
	var i []interface{}
	if err := json.Unmarshal(msg, &i); err != nil {
		return decimal.Zero, false
	}
	if len(i) != 4 {
		return decimal.Zero, false
	}
	if pair, ok := i[3].(string); !ok || pair != ticker {
		return decimal.Zero, false
	}

	ii, ok := i[1].(map[string]interface{})
	if !ok {
		return decimal.Zero, false
	}
	iii, ok := ii["c"].([]interface{})
	if !ok || len(iii) < 1 {
		return decimal.Zero, false
	}
	priceStr, ok := iii[0].(string)
	if !ok {
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, false
	}
	return mathutil.ToPrecisionUnits(price), true
}

func connectAndSubscribe(url, ticker string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	if err := subscribe(conn, ticker); err != nil {
		return nil, err
	}
	return conn, nil
}

type subscriber interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// subscribe sends the ticker subscription over conn. On failure conn is
// closed.
func subscribe(conn subscriber, ticker string) error {
	msg := map[string]interface{}{
		"event": "subscribe",
		"pair":  []string{ticker},
		"subscription": map[string]string{
			"name": "ticker",
		},
	}

	buf, _ := json.Marshal(msg)
	if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
		conn.Close()
		return fmt.Errorf("cannot subscribe to ticker %s: %s", ticker, err)
	}
	return nil
}
