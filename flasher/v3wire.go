package flasher

import "github.com/dresden-elektronik/deconz-flasher/bstream"

// v3Magic is payload[0] for every V3 bootloader message (spec §4.6).
const v3Magic = 0x81

const (
	v3OpIDRequest     = 0x02
	v3OpIDResponse    = 0x82
	v3OpUpdateRequest = 0x03
	v3OpUpdateResp    = 0x83
	v3OpDataRequest   = 0x04
	v3OpDataResponse  = 0x84
)

func v3IDRequest() []byte {
	return []byte{v3Magic, v3OpIDRequest}
}

// v3ParseIDResponse decodes an ID_RESPONSE payload: (btl_version, app_crc).
func v3ParseIDResponse(packet []byte) (btlVersion, appCRC uint32, ok bool) {
	if len(packet) < 10 || packet[0] != v3Magic || packet[1] != v3OpIDResponse {
		return 0, 0, false
	}
	pos := 2
	btlVersion, pos = bstream.GetU32LE(packet, pos)
	appCRC, _ = bstream.GetU32LE(packet, pos)
	return btlVersion, appCRC, true
}

func v3UpdateRequest(payloadSize, targetAddress uint32, fileType byte, crc32 uint32) []byte {
	buf := make([]byte, 2+4+4+1+4)
	buf[0] = v3Magic
	buf[1] = v3OpUpdateRequest
	pos := bstream.PutU32LE(buf, 2, payloadSize)
	pos = bstream.PutU32LE(buf, pos, targetAddress)
	pos = bstream.PutU8(buf, pos, fileType)
	bstream.PutU32LE(buf, pos, crc32)
	return buf
}

// v3ParseUpdateResponse reports whether the bootloader accepted the
// update request (status byte 2 == 0x00).
func v3ParseUpdateResponse(packet []byte) (accepted bool, ok bool) {
	if len(packet) < 3 || packet[0] != v3Magic || packet[1] != v3OpUpdateResp {
		return false, false
	}
	return packet[2] == 0x00, true
}

// v3ParseDataRequest decodes a DATA_REQUEST payload: (offset, length).
func v3ParseDataRequest(packet []byte) (offset uint32, length uint16, ok bool) {
	if len(packet) < 8 || packet[0] != v3Magic || packet[1] != v3OpDataRequest {
		return 0, 0, false
	}
	pos := 2
	offset, pos = bstream.GetU32LE(packet, pos)
	length, _ = bstream.GetU16LE(packet, pos)
	return offset, length, true
}

// Data request status codes (spec §4.6's V3ProgramUpload rules).
const (
	dataStatusOK         = 0x00
	dataStatusOutOfRange = 0x01
	dataStatusTooLong    = 0x02
	dataStatusZeroLength = 0x03
)

func v3DataResponse(status byte, offset uint32, data []byte) []byte {
	buf := make([]byte, 2+1+4+2+len(data))
	buf[0] = v3Magic
	buf[1] = v3OpDataResponse
	pos := bstream.PutU8(buf, 2, status)
	pos = bstream.PutU32LE(buf, pos, offset)
	pos = bstream.PutU16LE(buf, pos, uint16(len(data)))
	copy(buf[pos:], data)
	return buf
}
