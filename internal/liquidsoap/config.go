/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package liquidsoap

import (
	"fmt"
	"io"
)

// ChannelSources describes one channel for config generation: its id and the
// formatted names of the stations its timetable can select.
type ChannelSources struct {
	ID       string
	Stations []string
}

// ConfigOptions tunes the generated engine configuration.
type ConfigOptions struct {
	LogPath         string
	DefaultSource   string
	IcecastHost     string
	IcecastPort     int
	IcecastPassword string
}

// WriteConfig emits the full engine configuration: the shared preamble, one
// source block per station, then per-channel switches and outputs.
func WriteConfig(w io.Writer, opts ConfigOptions, stationBlocks []string, channels []ChannelSources) error {
	if opts.LogPath == "" {
		opts.LogPath = "/tmp/sunflower.liquidsoap.log"
	}
	if opts.IcecastHost == "" {
		opts.IcecastHost = "localhost"
	}
	if opts.IcecastPort == 0 {
		opts.IcecastPort = 3333
	}

	fmt.Fprintf(w, "#! /usr/bin/env liquidsoap\n\n")
	fmt.Fprintf(w, "# log file\n")
	fmt.Fprintf(w, "settings.log.file.set(true)\n")
	fmt.Fprintf(w, "settings.log.file.path.set(%q)\n", opts.LogPath)
	fmt.Fprintf(w, "settings.log.file.append.set(true)\n")
	fmt.Fprintf(w, "settings.log.stdout.set(false)\n\n")
	fmt.Fprintf(w, "# activate telnet server\n")
	fmt.Fprintf(w, "settings.server.telnet.set(true)\n\n")
	fmt.Fprintf(w, "# default source\n")
	fmt.Fprintf(w, "default = single(%q)\n\n", opts.DefaultSource)
	fmt.Fprintf(w, "# streams\n")

	for _, block := range stationBlocks {
		fmt.Fprint(w, block)
	}
	fmt.Fprintln(w)

	for _, channel := range channels {
		writeChannel(w, channel)
	}

	for _, channel := range channels {
		fmt.Fprintf(w, "output.icecast(%%vorbis(quality=0.6),\n")
		fmt.Fprintf(w, "    host=%q, port=%d, password=%q,\n", opts.IcecastHost, opts.IcecastPort, opts.IcecastPassword)
		fmt.Fprintf(w, "    mount=%q, %s_radio)\n\n", channel.ID, channel.ID)
	}
	return nil
}

func writeChannel(w io.Writer, channel ChannelSources) {
	if len(channel.Stations) > 1 {
		fmt.Fprintf(w, "# %s channel\n", channel.ID)
		for _, name := range channel.Stations {
			fmt.Fprintf(w, "%s_on_%s = interactive.bool(%q, false)\n", name, channel.ID, fmt.Sprintf("%s_on_%s", name, channel.ID))
		}
		fmt.Fprintf(w, "%s_radio = switch(track_sensitive=false, [\n", channel.ID)
		for _, name := range channel.Stations {
			fmt.Fprintf(w, "    (%s_on_%s, %s),\n", name, channel.ID, name)
		}
		fmt.Fprintf(w, "])\n")
		fmt.Fprintf(w, "%s_radio = fallback(track_sensitive=false, [%s_radio, default])\n", channel.ID, channel.ID)
	} else {
		fmt.Fprintf(w, "# %s channel\n", channel.ID)
		fmt.Fprintf(w, "%s_radio = fallback(track_sensitive=false, [%s, default])\n", channel.ID, channel.Stations[0])
	}
	fmt.Fprintf(w, "%s_radio = fallback(track_sensitive=false, [request.queue(id=%q), %s_radio])\n",
		channel.ID, channel.ID+"_custom_songs", channel.ID)
	fmt.Fprintf(w, "%s_radio = server.insert_metadata(id=%q, drop_metadata(%s_radio))\n\n", channel.ID, channel.ID, channel.ID)
}
