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

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// ChangeFunc is invoked with the newly decoded and validated Root every
// time the backing file changes on disk.
type ChangeFunc func(*Root)

// Loader owns a viper instance watching one configuration file, decoding
// it into Root via mapstructure and validating it via validator on every
// load.
type Loader struct {
	v        *viper.Viper
	validate *validator.Validate

	mu       sync.RWMutex
	current  *Root
	onChange []ChangeFunc
}

// New reads path once (failing if it cannot be read, decoded, or
// validated) and starts watching it for further changes.
func New(path string) (*Loader, error) {
	if path == "" {
		return nil, ErrorParamsEmpty.Error(nil)
	}

	l := &Loader{
		v:        viper.New(),
		validate: validator.New(),
	}
	l.v.SetConfigFile(path)

	if err := l.v.ReadInConfig(); err != nil {
		return nil, ErrorReadConfig.Error(err)
	}

	root, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.current = root

	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.reload()
	})
	l.v.WatchConfig()

	return l, nil
}

// Current returns the most recently loaded and validated Root.
func (l *Loader) Current() *Root {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers fn to be called, with the newly validated Root,
// every time the backing file is reloaded. fn is not called for the
// initial load performed by New.
func (l *Loader) OnChange(fn ChangeFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

func (l *Loader) decode() (*Root, error) {
	root := &Root{}

	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := l.v.Unmarshal(root, viper.DecodeHook(decodeHook)); err != nil {
		return nil, ErrorDecodeConfig.Error(err)
	}

	if err := l.validate.Struct(root); err != nil {
		return nil, ErrorValidateConfig.Error(err)
	}

	return root, nil
}

func (l *Loader) reload() {
	root, err := l.decode()
	if err != nil {
		return
	}

	l.mu.Lock()
	l.current = root
	listeners := append([]ChangeFunc(nil), l.onChange...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(root)
	}
}
