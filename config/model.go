/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package config

import "time"

// Root is the top-level decoded configuration: the server's own tick
// timing plus its TCP listener definitions.
type Root struct {
	ClockTimeout time.Duration    `mapstructure:"clock_timeout" validate:"required"`
	StopTimeout  time.Duration    `mapstructure:"stop_timeout" validate:"required"`
	Listeners    []ListenerConfig `mapstructure:"listeners" validate:"dive"`
}

// ListenerConfig describes one tcpservice endpoint: its bind address
// plus its dispatcher sizing.
type ListenerConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	Host     string `mapstructure:"host"`
	Port     uint16 `mapstructure:"port" validate:"required"`
	Backlog  int    `mapstructure:"backlog" validate:"min=1"`
	Workers  int    `mapstructure:"workers" validate:"required,min=1"`
	Overflow int    `mapstructure:"overflow" validate:"min=0"`
	Async    bool   `mapstructure:"async"`
}
