// Package xfile 校验来自配置或命令行的文件路径，并为其准备父目录。
//
// CleanFilePath 只做格式校验（空路径、空字节、目录路径、相对路径穿越），
// 不限制路径必须位于某个目录内，绝对路径按原样接受。
package xfile
