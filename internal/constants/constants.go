package constants

const USER_AGENT = "milepost/1.0 (+https://github.com/milepost/milepost)"
