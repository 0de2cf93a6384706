/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package radiofrance

// Presets maps the configuration names of the supported Radio France
// stations to their upstream coordinates.
var Presets = map[string]Config{
	"France Inter": {
		Name:      "France Inter",
		Slogan:    "InterVenez",
		APIName:   "FRANCEINTER",
		Thumbnail: "https://charte.dnm.radiofrance.fr/images/france-inter-numerique.svg",
		Website:   "https://www.franceinter.fr",
		StreamURL: "http://icecast.radiofrance.fr/franceinter-midfi.mp3",
	},
	"France Info": {
		Name:      "France Info",
		Slogan:    "Et tout est plus clair",
		APIName:   "FRANCEINFO",
		Thumbnail: "https://charte.dnm.radiofrance.fr/images/franceinfo-carre.svg",
		Website:   "https://www.francetvinfo.fr",
		StreamURL: "http://icecast.radiofrance.fr/franceinfo-midfi.mp3",
	},
	"France Musique": {
		Name:      "France Musique",
		Slogan:    "Vous allez LA DO RÉ !",
		APIName:   "FRANCEMUSIQUE",
		Thumbnail: "https://charte.dnm.radiofrance.fr/images/france-musique-numerique.svg",
		Website:   "https://www.francemusique.fr",
		StreamURL: "http://icecast.radiofrance.fr/francemusique-midfi.mp3",
	},
	"France Culture": {
		Name:      "France Culture",
		Slogan:    "L'esprit d'ouverture",
		APIName:   "FRANCECULTURE",
		Thumbnail: "https://charte.dnm.radiofrance.fr/images/france-culture-numerique.svg",
		Website:   "https://www.franceculture.fr",
		StreamURL: "http://icecast.radiofrance.fr/franceculture-midfi.mp3",
	},
}
