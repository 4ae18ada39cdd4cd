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

// State is one position of the parser's state machine.
type State int

const (
	ParsingFirstToken State = iota
	ParsingFirstTokenSp
	ParsingSecondToken
	ParsingSecondTokenSp
	ParsingThirdToken
	ParsingThirdTokenCR
	ParsingThirdTokenLF
	ParsingHeaderFieldName
	ParsingHeaderFieldValue
	ParsingHeaderFieldValueLF
	ParsingHeaderFieldValueLWS
	ParsingEndOfHeaderCR
	ParsingEndOfHeaderLF
	ParsingIdentityBody
	ParsingChunkSize
	ParsingChunkSizeLF
	ParsingChunk
	ParsingChunkCR
	ParsingChunkLF
	ParsingTrailerFieldName
	ParsingTrailerFieldValue
	ParsingTrailerFieldValueLF
	ParsingTrailerFieldValueLWS
	ParsingFinalCR
	ParsingFinalLF
	MessageCompleted
	BadMessage
)

func (s State) String() string {
	switch s {
	case ParsingFirstToken:
		return "ParsingFirstToken"
	case ParsingFirstTokenSp:
		return "ParsingFirstTokenSp"
	case ParsingSecondToken:
		return "ParsingSecondToken"
	case ParsingSecondTokenSp:
		return "ParsingSecondTokenSp"
	case ParsingThirdToken:
		return "ParsingThirdToken"
	case ParsingThirdTokenCR:
		return "ParsingThirdTokenCR"
	case ParsingThirdTokenLF:
		return "ParsingThirdTokenLF"
	case ParsingHeaderFieldName:
		return "ParsingHeaderFieldName"
	case ParsingHeaderFieldValue:
		return "ParsingHeaderFieldValue"
	case ParsingHeaderFieldValueLF:
		return "ParsingHeaderFieldValueLF"
	case ParsingHeaderFieldValueLWS:
		return "ParsingHeaderFieldValueLWS"
	case ParsingEndOfHeaderCR:
		return "ParsingEndOfHeaderCR"
	case ParsingEndOfHeaderLF:
		return "ParsingEndOfHeaderLF"
	case ParsingIdentityBody:
		return "ParsingIdentityBody"
	case ParsingChunkSize:
		return "ParsingChunkSize"
	case ParsingChunkSizeLF:
		return "ParsingChunkSizeLF"
	case ParsingChunk:
		return "ParsingChunk"
	case ParsingChunkCR:
		return "ParsingChunkCR"
	case ParsingChunkLF:
		return "ParsingChunkLF"
	case ParsingTrailerFieldName:
		return "ParsingTrailerFieldName"
	case ParsingTrailerFieldValue:
		return "ParsingTrailerFieldValue"
	case ParsingTrailerFieldValueLF:
		return "ParsingTrailerFieldValueLF"
	case ParsingTrailerFieldValueLWS:
		return "ParsingTrailerFieldValueLWS"
	case ParsingFinalCR:
		return "ParsingFinalCR"
	case ParsingFinalLF:
		return "ParsingFinalLF"
	case MessageCompleted:
		return "MessageCompleted"
	case BadMessage:
		return "BadMessage"
	}
	return "Unknown"
}

const (
	cr   = '\r'
	lf   = '\n'
	sp   = ' '
	htab = '\t'
)

func isTokenChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~', ':', '/':
		return true
	}
	return false
}

func isHeaderNameChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

func isHeaderValueChar(b byte) bool {
	return b == sp || b == htab || (b >= 0x21 && b <= 0x7e) || b >= 0x80
}

func isHexDigit(b byte) bool {
	switch {
	case b >= '0' && b <= '9', b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
		return true
	}
	return false
}

func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return 0
}
