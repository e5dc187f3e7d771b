package main

// @title           Chat Relay API
// @version         1.0
// @description     API REST do chat: publica mensagens no broker e lista as mensagens consumidas

// @host      localhost:8080
// @BasePath  /api
