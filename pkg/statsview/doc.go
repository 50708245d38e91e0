// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package statsview serves runtime statistics over http while the emulator
// runs. The server is only compiled in with the statsview build tag:
//
//	go build -tags statsview ./cmd/gochip8
//
// Charts are then served at localhost:12600/debug/statsview and the standard
// pprof handlers at localhost:12600/debug/pprof/.
package statsview
