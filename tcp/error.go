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

package tcp

import "github.com/sabouaram/svckernel/errors"

const (
	ErrorParamsEmpty errors.CodeError = iota + errors.MinPkgTcp
	ErrorResolve
	ErrorSocketCreate
	ErrorSocketBind
	ErrorSocketListen
	ErrorSocketAccept
	ErrorSocketConnect
	ErrorSocketRead
	ErrorSocketWrite
	ErrorSocketClose
	ErrorTimeout
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorParamsEmpty)
	errors.RegisterIdFctMessage(ErrorParamsEmpty, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorParamsEmpty:
		return "given parameters are empty"
	case ErrorResolve:
		return "error resolving host address"
	case ErrorSocketCreate:
		return "error creating socket"
	case ErrorSocketBind:
		return "error binding socket"
	case ErrorSocketListen:
		return "error listening on socket"
	case ErrorSocketAccept:
		return "error accepting connection"
	case ErrorSocketConnect:
		return "error connecting socket"
	case ErrorSocketRead:
		return "error reading from socket"
	case ErrorSocketWrite:
		return "error writing to socket"
	case ErrorSocketClose:
		return "error closing socket"
	case ErrorTimeout:
		return "operation timed out waiting on the socket"
	}

	return ""
}
