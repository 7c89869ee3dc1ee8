/*
The package sms implements everything that is necessary for encoding and
sending short messages through the AT command interface of a GSM modem in
PDU mode. This implementation is solely based on:

	[SMS]  3GPP TS 23.040 (GSM 03.40) - Technical realization of the SMS
	[CHAR] 3GPP TS 23.038 (GSM 03.38) - Alphabets and language-specific information
	[AT]   3GPP TS 27.005 (GSM 07.05) - AT commands for SMS

Abbreviations:
PDU: Protocol Data Unit
TPDU: Transfer PDU, the PDU without the leading service center address
UDH: User Data Header
DCS: Data Coding Scheme

Restrictions:
Only sending is supported, there is no decoding of inbound messages.
*/
package sms
