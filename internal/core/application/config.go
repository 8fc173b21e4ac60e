package application

import (
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
	dbbadger "github.com/tdex-network/reserve-lister/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/reserve-lister/internal/infrastructure/storage/db/inmemory"
)

const (
	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBInMemory: {},
	}
)

type Config struct {
	DBType   string
	DBConfig interface{}

	AdminAddress string
	Lister       ListerConfig
	RateOracle   ports.RateOracle
	PubSub       ports.PubSub

	repo      ports.RepoManager
	pubsub    PubSubService
	lister    ListerService
	reserve   ReserveService
	feeLedger FeeLedgerService
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return ErrUnknownDBType
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.feeLedgerService(); err != nil {
		return err
	}
	if _, err := c.listerService(); err != nil {
		return err
	}
	if _, err := c.reserveService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) PubSubService() PubSubService {
	svc, _ := c.pubsubService()
	return svc
}

func (c *Config) ListerService() ListerService {
	svc, _ := c.listerService()
	return svc
}

func (c *Config) ReserveService() ReserveService {
	svc, _ := c.reserveService()
	return svc
}

func (c *Config) FeeLedgerService() FeeLedgerService {
	svc, _ := c.feeLedgerService()
	return svc
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.New())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		case DBInMemory:
			c.repo = inmemory.NewRepoManager()
		default:
			return nil, ErrUnknownDBType
		}
	}
	return c.repo, nil
}

func (c *Config) pubsubService() (PubSubService, error) {
	if c.pubsub == nil {
		c.pubsub = NewPubSubService(c.PubSub)
	}
	return c.pubsub, nil
}

func (c *Config) listerService() (ListerService, error) {
	if c.lister == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		pubsub, _ := c.pubsubService()
		lister, err := NewListerService(c.Lister, repo, pubsub)
		if err != nil {
			return nil, err
		}
		c.lister = lister
	}
	return c.lister, nil
}

func (c *Config) reserveService() (ReserveService, error) {
	if c.reserve == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		reserve, err := NewReserveService(repo)
		if err != nil {
			return nil, err
		}
		c.reserve = reserve
	}
	return c.reserve, nil
}

func (c *Config) feeLedgerService() (FeeLedgerService, error) {
	if c.feeLedger == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		pubsub, _ := c.pubsubService()
		feeLedger, err := NewFeeLedgerService(
			c.AdminAddress, c.RateOracle, repo, pubsub,
		)
		if err != nil {
			return nil, err
		}
		c.feeLedger = feeLedger
	}
	return c.feeLedger, nil
}
