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

package httpmsg

import "github.com/sabouaram/svckernel/errors"

// Kind is a parser/writer failure reason, recorded alongside BadMessage
// so a caller can decide how to respond (e.g. which 4xx to send).
type Kind errors.CodeError

const (
	KindNone Kind = Kind(iota + errors.MinPkgHttpMsg)
	KindMethodTokenTooLong
	KindUriTooLong
	KindVersionTooLong
	KindStatusCodeTooLong
	KindReasonPhraseTooLong
	KindHeaderFieldNameTooLong
	KindHeaderFieldValueTooLong
	KindTooManyHeaders
	KindInvalidCharInFirstToken
	KindInvalidCharInSecondToken
	KindInvalidCharInThirdToken
	KindInvalidCharInHeaderFieldName
	KindInvalidCharInHeaderFieldValue
	KindExpectedCR
	KindExpectedLF
	KindInvalidChunkSize
	KindBodyTooLong
	KindInvalidTransferEncoding
	KindBadHeaderFolding
)

const (
	ErrorParamsEmpty errors.CodeError = iota + errors.MinPkgHttpMsg + 100
	ErrorWriterChunkedAfterOnce
	ErrorWriterOnceAfterChunked
	ErrorWriterHeaderAlreadySerialised
	ErrorWriterDeadlineExceeded
	ErrorReaderDeadlineExceeded
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
	case ErrorWriterChunkedAfterOnce:
		return "cannot write a chunk after a one-shot write on this writer"
	case ErrorWriterOnceAfterChunked:
		return "cannot perform a one-shot write after a chunked write on this writer"
	case ErrorWriterHeaderAlreadySerialised:
		return "cannot modify a header field that has already been serialised"
	case ErrorWriterDeadlineExceeded:
		return "write did not complete before the deadline; call Flush until it returns true"
	case ErrorReaderDeadlineExceeded:
		return "read did not complete before the deadline"
	}

	return ""
}

// String renders a Kind's symbolic name, used in BadMessage diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindMethodTokenTooLong:
		return "MethodTokenTooLong"
	case KindUriTooLong:
		return "UriTooLong"
	case KindVersionTooLong:
		return "VersionTooLong"
	case KindStatusCodeTooLong:
		return "StatusCodeTooLong"
	case KindReasonPhraseTooLong:
		return "ReasonPhraseTooLong"
	case KindHeaderFieldNameTooLong:
		return "HeaderFieldNameTooLong"
	case KindHeaderFieldValueTooLong:
		return "HeaderFieldValueTooLong"
	case KindTooManyHeaders:
		return "TooManyHeaders"
	case KindInvalidCharInFirstToken:
		return "InvalidCharInFirstToken"
	case KindInvalidCharInSecondToken:
		return "InvalidCharInSecondToken"
	case KindInvalidCharInThirdToken:
		return "InvalidCharInThirdToken"
	case KindInvalidCharInHeaderFieldName:
		return "InvalidCharInHeaderFieldName"
	case KindInvalidCharInHeaderFieldValue:
		return "InvalidCharInHeaderFieldValue"
	case KindExpectedCR:
		return "ExpectedCR"
	case KindExpectedLF:
		return "ExpectedLF"
	case KindInvalidChunkSize:
		return "InvalidChunkSize"
	case KindBodyTooLong:
		return "BodyTooLong"
	case KindInvalidTransferEncoding:
		return "InvalidTransferEncoding"
	case KindBadHeaderFolding:
		return "BadHeaderFolding"
	}
	return "Unknown"
}
