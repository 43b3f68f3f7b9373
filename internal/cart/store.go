package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/multimart/multimart-backend/pkg/logger"
	"github.com/multimart/multimart-backend/pkg/metrics"
	"github.com/multimart/multimart-backend/pkg/schedule"
)

// StoreOptions configures a session-scoped cart store.
type StoreOptions struct {
	SessionID string
	Storage   Storage
	// SaveTask debounces persistence writes; NotifyTask drives notification
	// auto-dismiss. Both default to timer-backed debouncers.
	SaveTask   schedule.Task
	NotifyTask schedule.Task

	SaveDebounce    time.Duration
	NotificationTTL time.Duration

	Metrics *metrics.CartMetrics
	Logger  *logger.Logger
}

// Store wraps the reducer with persistence and the notification timer. One
// store exists per browsing session; tests construct fresh ones.
type Store struct {
	sessionID string
	storage   Storage
	saveTask  schedule.Task
	notify    schedule.Task

	saveDebounce    time.Duration
	notificationTTL time.Duration

	metrics *metrics.CartMetrics
	logg    *logger.Logger

	// mutations are serialized through the store's dispatch queue
	dispatchCh chan dispatchRequest
	done       chan struct{}

	stateCh chan State
}

type dispatchRequest struct {
	action Action
	reply  chan State
}

const (
	defaultSaveDebounce    = 50 * time.Millisecond
	defaultNotificationTTL = 3 * time.Second
)

// NewStore loads the persisted item list and starts the dispatch loop.
// Malformed persisted data is discarded and the storage entry cleared.
func NewStore(ctx context.Context, opts StoreOptions) (*Store, error) {
	if opts.Storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if opts.SaveTask == nil {
		opts.SaveTask = schedule.NewDebouncer()
	}
	if opts.NotifyTask == nil {
		opts.NotifyTask = schedule.NewDebouncer()
	}
	if opts.SaveDebounce <= 0 {
		opts.SaveDebounce = defaultSaveDebounce
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = defaultNotificationTTL
	}

	store := &Store{
		sessionID:       opts.SessionID,
		storage:         opts.Storage,
		saveTask:        opts.SaveTask,
		notify:          opts.NotifyTask,
		saveDebounce:    opts.SaveDebounce,
		notificationTTL: opts.NotificationTTL,
		metrics:         opts.Metrics,
		logg:            opts.Logger,
		dispatchCh:      make(chan dispatchRequest),
		done:            make(chan struct{}),
		stateCh:         make(chan State),
	}

	initial := State{}
	items, err := opts.Storage.Load(ctx)
	switch {
	case errors.Is(err, ErrCorrupted):
		if store.logg != nil {
			store.logg.Warn(store.logg.WithSessionID(ctx, opts.SessionID), "discarding corrupted cart data")
		}
		if clearErr := opts.Storage.Clear(ctx); clearErr != nil && store.logg != nil {
			store.logg.Error(ctx, "clearing corrupted cart entry", clearErr)
		}
	case err != nil:
		return nil, fmt.Errorf("loading persisted cart: %w", err)
	default:
		initial = Reduce(initial, Load{Items: items})
	}

	go store.loop(initial)
	return store, nil
}

// loop owns the state. All reads and writes funnel through it, which gives
// the single-queue ordering guarantee: transitions apply in dispatch order.
func (s *Store) loop(state State) {
	for {
		select {
		case req := <-s.dispatchCh:
			state = s.apply(state, req.action)
			if req.reply != nil {
				req.reply <- state
			}
		case s.stateCh <- state:
		case <-s.done:
			return
		}
	}
}

func (s *Store) apply(state State, action Action) State {
	name := ActionName(action)
	if name == "unknown" && s.logg != nil {
		// Unreachable with the closed action set; loud on purpose.
		s.logg.Warn(context.Background(), "unrecognized cart action dispatched")
	}
	next := Reduce(state, action)
	s.metrics.IncAction(name)

	if mutatesItems(action) {
		items := next.Items
		s.saveTask.Schedule(s.saveDebounce, func() {
			s.persist(items)
		})
	}

	switch action.(type) {
	case HideNotification:
		s.notify.Stop()
	default:
		if next.Notification.Show {
			// A fresh notification restarts the dismiss window.
			s.notify.Schedule(s.notificationTTL, func() {
				s.Dispatch(HideNotification{})
			})
		}
	}
	return next
}

func (s *Store) persist(items []LineItem) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.storage.Save(ctx, items); err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithSessionID(ctx, s.sessionID), "persisting cart", err)
		}
		return
	}
	s.metrics.ObserveFlush(time.Since(started))
}

// Dispatch applies one action and returns the resulting state.
func (s *Store) Dispatch(action Action) State {
	reply := make(chan State, 1)
	select {
	case s.dispatchCh <- dispatchRequest{action: action, reply: reply}:
		return <-reply
	case <-s.done:
		return State{}
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	select {
	case state := <-s.stateCh:
		return state
	case <-s.done:
		return State{}
	}
}

// SelectedItems returns the rows participating in the current checkout.
func (s *Store) SelectedItems() []LineItem {
	var out []LineItem
	for _, item := range s.State().Items {
		if item.Selected {
			out = append(out, item)
		}
	}
	return out
}

// SelectedTotal sums price*quantity over selected rows. Checkout uses this
// figure; the full-cart total is display-only.
func (s *Store) SelectedTotal() float64 {
	var total float64
	for _, item := range s.State().Items {
		if item.Selected {
			total += item.Price * float64(item.Quantity)
		}
	}
	return total
}

// CartItemsCount sums quantities over all rows, not the row count.
func (s *Store) CartItemsCount() int {
	var count int
	for _, item := range s.State().Items {
		count += item.Quantity
	}
	return count
}

// CartTotal sums price*quantity over all rows, selected or not.
func (s *Store) CartTotal() float64 {
	var total float64
	for _, item := range s.State().Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Close flushes any pending persistence write and stops the timers and loop.
func (s *Store) Close() {
	s.saveTask.Flush()
	s.notify.Stop()
	close(s.done)
}

// mutatesItems reports whether the action can change the persisted item list.
// Notification-only actions never trigger a write.
func mutatesItems(action Action) bool {
	switch action.(type) {
	case AddItem, RemoveItem, UpdateQuantity, UpdateCustomization,
		ToggleSelect, SelectAll, DeselectAll, Clear, Load:
		return true
	}
	return false
}

// ActionName labels an action for metrics and logs.
func ActionName(action Action) string {
	switch action.(type) {
	case AddItem:
		return "add"
	case RemoveItem:
		return "remove"
	case UpdateQuantity:
		return "update_quantity"
	case UpdateCustomization:
		return "update_customization"
	case ToggleSelect:
		return "toggle_select"
	case SelectAll:
		return "select_all"
	case DeselectAll:
		return "deselect_all"
	case Clear:
		return "clear"
	case Load:
		return "load"
	case ShowNotification:
		return "show_notification"
	case HideNotification:
		return "hide_notification"
	default:
		return "unknown"
	}
}
