/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package liquidsoap

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteConfig(t *testing.T) {
	var buf bytes.Buffer
	opts := ConfigOptions{
		LogPath:         "/var/log/sunflower.liq.log",
		DefaultSource:   "/music/default.ogg",
		IcecastHost:     "icecast",
		IcecastPort:     8000,
		IcecastPassword: "secret",
	}
	blocks := []string{
		"franceinter = mksafe(input.http(id=\"franceinter\", autostart=false, \"http://example/inter\"))\n",
		"rtl2 = mksafe(input.http(id=\"rtl2\", autostart=false, \"http://example/rtl2\"))\n",
	}
	channels := []ChannelSources{
		{ID: "tournesol", Stations: []string{"franceinter", "rtl2"}},
		{ID: "musique", Stations: []string{"rtl2"}},
	}

	if err := WriteConfig(&buf, opts, blocks, channels); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`settings.log.file.path.set("/var/log/sunflower.liq.log")`,
		"settings.server.telnet.set(true)",
		`default = single("/music/default.ogg")`,
		`franceinter_on_tournesol = interactive.bool("franceinter_on_tournesol", false)`,
		"tournesol_radio = switch(track_sensitive=false, [",
		"    (franceinter_on_tournesol, franceinter),",
		`tournesol_radio = fallback(track_sensitive=false, [request.queue(id="tournesol_custom_songs"), tournesol_radio])`,
		`tournesol_radio = server.insert_metadata(id="tournesol", drop_metadata(tournesol_radio))`,
		// single-station channels skip the switch entirely
		"musique_radio = fallback(track_sensitive=false, [rtl2, default])",
		`host="icecast", port=8000, password="secret",`,
		`mount="tournesol", tournesol_radio)`,
		`mount="musique", musique_radio)`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("generated config missing %q\n---\n%s", want, out)
		}
	}

	if strings.Contains(out, "rtl2_on_musique") {
		t.Fatal("single-station channel must not declare switch booleans")
	}
}
