// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package subscriptions

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/mutex/v2"
	"github.com/juju/utils/v4"
	"gopkg.in/yaml.v3"

	"github.com/juju/azsm/osenv"
)

var logger = loggo.GetLogger("azsm.subscriptions")

// Reading or writing the file takes well under a second, but slow
// disks can hold the lock for longer.
var lockTimeout = 5 * time.Second

const lockName = "azsm-subscriptions"

// SubscriptionsPath returns the path of the subscriptions file.
func SubscriptionsPath() string {
	return osenv.DataHomePath("subscriptions.yaml")
}

// CertificatesDir returns the directory holding imported management
// certificates.
func CertificatesDir() string {
	return osenv.DataHomePath("certificates")
}

// NewFileStore returns a store that manages subscriptions in
// $XDG_DATA_HOME/azsm.
func NewFileStore() Store {
	return &store{clock: clock.WallClock}
}

type store struct {
	clock clock.Clock
}

func (s *store) lock(operation string) (mutex.Releaser, error) {
	releaser, err := mutex.Acquire(mutex.Spec{
		Name:    lockName,
		Clock:   s.clock,
		Delay:   20 * time.Millisecond,
		Timeout: lockTimeout,
	})
	if err != nil {
		return nil, errors.Annotatef(err, "cannot %s: acquiring subscriptions lock", operation)
	}
	logger.Tracef("acquired subscriptions lock to %s", operation)
	return releaser, nil
}

// AllSubscriptions implements SubscriptionGetter.
func (s *store) AllSubscriptions() ([]Subscription, error) {
	releaser, err := s.lock("read subscriptions")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer releaser.Release()

	file, err := ReadSubscriptionsFile(SubscriptionsPath())
	if err != nil {
		return nil, errors.Trace(err)
	}
	result := make([]Subscription, 0, len(file.Subscriptions))
	for name := range file.Subscriptions {
		result = append(result, file.subscription(name))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// SubscriptionByName implements SubscriptionGetter.
func (s *store) SubscriptionByName(name string) (*Subscription, error) {
	if name == "" {
		return nil, errors.NotValidf("empty subscription name")
	}
	releaser, err := s.lock("read subscription")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer releaser.Release()

	file, err := ReadSubscriptionsFile(SubscriptionsPath())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return file.lookup(name)
}

// CurrentSubscription implements SubscriptionGetter.
func (s *store) CurrentSubscription(name string) (*Subscription, error) {
	if name == "" {
		name = os.Getenv(osenv.AzsmSubscriptionEnvKey)
	}
	releaser, err := s.lock("read current subscription")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer releaser.Release()

	file, err := ReadSubscriptionsFile(SubscriptionsPath())
	if err != nil {
		return nil, errors.Trace(err)
	}
	if name == "" {
		name = file.Default
	}
	if name == "" {
		return nil, ErrNoCurrentSubscription
	}
	return file.lookup(name)
}

// UpdateSubscription implements SubscriptionUpdater.
func (s *store) UpdateSubscription(sub Subscription) error {
	if err := sub.Validate(); err != nil {
		return errors.Trace(err)
	}
	return s.update("update subscription", func(file *SubscriptionsFile) error {
		sub.Default = false
		file.Subscriptions[sub.Name] = sub
		if file.Default == "" {
			file.Default = sub.Name
		}
		return nil
	})
}

// RemoveSubscription implements SubscriptionUpdater.
func (s *store) RemoveSubscription(name string) error {
	return s.update("remove subscription", func(file *SubscriptionsFile) error {
		if _, ok := file.Subscriptions[name]; !ok {
			return errors.NotFoundf("subscription %q", name)
		}
		delete(file.Subscriptions, name)
		if file.Default == name {
			file.Default = ""
		}
		return nil
	})
}

// SetDefault implements SubscriptionUpdater.
func (s *store) SetDefault(name string) error {
	return s.update("set default subscription", func(file *SubscriptionsFile) error {
		if _, ok := file.Subscriptions[name]; !ok {
			return errors.NotFoundf("subscription %q", name)
		}
		file.Default = name
		return nil
	})
}

func (s *store) update(operation string, f func(*SubscriptionsFile) error) error {
	releaser, err := s.lock(operation)
	if err != nil {
		return errors.Trace(err)
	}
	defer releaser.Release()

	path := SubscriptionsPath()
	file, err := ReadSubscriptionsFile(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err := f(file); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(WriteSubscriptionsFile(path, file))
}

func (f *SubscriptionsFile) subscription(name string) Subscription {
	sub := f.Subscriptions[name]
	sub.Name = name
	sub.Default = name == f.Default
	return sub
}

func (f *SubscriptionsFile) lookup(name string) (*Subscription, error) {
	if _, ok := f.Subscriptions[name]; !ok {
		return nil, errors.NotFoundf("subscription %q", name)
	}
	sub := f.subscription(name)
	return &sub, nil
}

// ReadSubscriptionsFile reads the subscriptions file at path. A missing
// file holds no subscriptions.
func ReadSubscriptionsFile(path string) (*SubscriptionsFile, error) {
	file := &SubscriptionsFile{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Trace(err)
	}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, errors.Annotatef(err, "parsing %s", path)
	}
	if file.Subscriptions == nil {
		file.Subscriptions = make(map[string]Subscription)
	}
	return file, nil
}

// WriteSubscriptionsFile atomically replaces the subscriptions file at
// path.
func WriteSubscriptionsFile(path string, file *SubscriptionsFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return errors.Annotate(err, "cannot marshal subscriptions")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Trace(err)
	}
	return errors.Annotatef(utils.AtomicWriteFile(path, data, 0600), "writing %s", path)
}
