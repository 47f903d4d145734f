// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/goccy/go-json"

	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/models"
)

// storageStateFile is the file name inside a session's state directory.
const storageStateFile = "storage_state.json"

// StorageStatePath returns the on-disk location of a session's state file.
func StorageStatePath(s *models.Session) string {
	return filepath.Join(s.StorageStateDir, storageStateFile)
}

// localStorageDumpJS reads every localStorage entry of the current origin.
const localStorageDumpJS = `(() => {
	const items = [];
	try {
		for (let i = 0; i < localStorage.length; i++) {
			const name = localStorage.key(i);
			items.push({name: name, value: localStorage.getItem(name)});
		}
	} catch (e) {}
	return items;
})()`

// SaveStorageState captures cookies and the current origin's localStorage
// from the session's login tab and persists them as JSON.
func (m *Manager) SaveStorageState(s *models.Session) error {
	tab, err := m.Tab(SessionTabKey(s.ID))
	if err != nil {
		return fmt.Errorf("login tab gone: %w", err)
	}

	state := models.StorageState{
		Cookies: []models.StorageCookie{},
		Origins: []models.OriginState{},
	}

	opCtx, cancel := context.WithTimeout(tab.Ctx, m.cfg.BrowserTimeout())
	defer cancel()

	var origin string
	var items []models.LocalStorageItem
	err = chromedp.Run(opCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := storage.GetCookies().Do(ctx)
			if err != nil {
				return fmt.Errorf("get cookies: %w", err)
			}
			for _, c := range cookies {
				state.Cookies = append(state.Cookies, models.StorageCookie{
					Name:     c.Name,
					Value:    c.Value,
					Domain:   c.Domain,
					Path:     c.Path,
					Expires:  c.Expires,
					HTTPOnly: c.HTTPOnly,
					Secure:   c.Secure,
					SameSite: string(c.SameSite),
				})
			}
			return nil
		}),
		chromedp.Evaluate(`location.origin`, &origin),
		chromedp.Evaluate(localStorageDumpJS, &items),
	)
	if err != nil {
		return fmt.Errorf("failed to capture storage state: %w", err)
	}

	if origin != "" && origin != "null" {
		state.Origins = append(state.Origins, models.OriginState{
			Origin:       origin,
			LocalStorage: items,
		})
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage state: %w", err)
	}
	path := StorageStatePath(s)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write storage state: %w", err)
	}

	logging.Info().
		Str("session_id", s.ID).
		Int("cookies", len(state.Cookies)).
		Int("origins", len(state.Origins)).
		Msg("storage state saved")
	return nil
}

// LoadStorageState reads a session's persisted state from disk.
func LoadStorageState(s *models.Session) (*models.StorageState, error) {
	data, err := os.ReadFile(StorageStatePath(s))
	if err != nil {
		return nil, fmt.Errorf("failed to read storage state: %w", err)
	}
	state := &models.StorageState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode storage state: %w", err)
	}
	return state, nil
}

// NewAuthenticatedTab opens a fresh tab carrying the session's captured
// state: cookies are installed up front, localStorage is seeded into every
// new document before any page script runs.
func (m *Manager) NewAuthenticatedTab(s *models.Session, key string) (*Tab, error) {
	if !s.Authenticated {
		return nil, fmt.Errorf("session %s is not authenticated", s.ID)
	}
	state, err := LoadStorageState(s)
	if err != nil {
		return nil, err
	}

	tab, err := m.OpenTab(key)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(tab.Ctx, m.cfg.BrowserTimeout())
	defer cancel()

	err = chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		if params := cookieParams(state.Cookies); len(params) > 0 {
			if err := network.SetCookies(params).Do(ctx); err != nil {
				return fmt.Errorf("set cookies: %w", err)
			}
		}
		script, err := localStorageSeedScript(state.Origins)
		if err != nil {
			return err
		}
		if script != "" {
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return fmt.Errorf("seed localStorage: %w", err)
			}
		}
		return nil
	}))
	if err != nil {
		m.CloseTab(key)
		return nil, fmt.Errorf("failed to restore storage state: %w", err)
	}

	return tab, nil
}

// cookieParams converts persisted cookies into CDP set-cookie parameters.
func cookieParams(cookies []models.StorageCookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(epochTime(c.Expires))
			p.Expires = &expires
		}
		params = append(params, p)
	}
	return params
}

// localStorageSeedScript builds a script that fills localStorage for the
// matching origin on every new document. Returns "" when there is nothing
// to seed.
func localStorageSeedScript(origins []models.OriginState) (string, error) {
	byOrigin := make(map[string][]models.LocalStorageItem, len(origins))
	for _, o := range origins {
		if len(o.LocalStorage) > 0 {
			byOrigin[o.Origin] = o.LocalStorage
		}
	}
	if len(byOrigin) == 0 {
		return "", nil
	}
	blob, err := json.Marshal(byOrigin)
	if err != nil {
		return "", fmt.Errorf("failed to encode localStorage seed: %w", err)
	}
	script := fmt.Sprintf(`(() => {
	try {
		const state = %s;
		const items = state[location.origin];
		if (!items) return;
		for (const item of items) {
			localStorage.setItem(item.name, item.value);
		}
	} catch (e) {}
})();`, string(blob))
	return script, nil
}
