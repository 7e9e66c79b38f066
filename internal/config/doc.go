// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mull.
//
// Configuration is TOML at ~/.mull/config.toml with environment variable
// overrides (MULL_API_TOKEN, MULL_API_URL, MULL_MODEL) and validation.
// There is no in-app settings screen; Watch picks up file edits live so a
// token change takes effect without restarting.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	w, _ := config.Watch(path, func(cfg *config.Config) {
//	    client.SetToken(cfg.API.Token)
//	})
//	defer w.Close()
package config
